package handler

import (
	"github.com/gin-gonic/gin"

	"wotsapp/internal/model"
	"wotsapp/pkg/jwt"
	"wotsapp/pkg/response"
)

// MustGetPersonID 从 Gin 上下文中安全提取 person_id。
// 如果 JWT 中间件未正确注入 person_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetPersonID(c *gin.Context) (string, bool) {
	v, exists := c.Get("person_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 从 Gin 上下文重建发起操作的人员身份。
// 只带 JWT 注入的 PersonID / Name / Role；需要认证 UID、邮箱等
// 旧键的 Service 自行按 PersonID 回表补齐全量记录。
func MustGetActor(c *gin.Context) (*model.Person, bool) {
	id, ok := MustGetPersonID(c)
	if !ok {
		return nil, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return nil, false
	}
	name, _ := c.Get("person_name")
	nameStr, _ := name.(string)

	return &model.Person{PersonID: id, Name: nameStr, Role: role}, true
}

// MustGetClaims 从 Gin 上下文中安全提取完整 JWT 声明（登出时需要 jti）。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

