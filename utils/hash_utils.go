package utils

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// 登录路径同步校验哈希，成本固定为库默认值
const hashCost = bcrypt.DefaultCost

// HashPassword 使用 bcrypt 对密码进行哈希处理
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("密码不能为空")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash 比较密码和哈希值
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordHashed 判断字符串是否已是bcrypt哈希，模型钩子用它避免二次哈希
func PasswordHashed(s string) bool {
	return len(s) == 60 && strings.HasPrefix(s, "$2")
}
