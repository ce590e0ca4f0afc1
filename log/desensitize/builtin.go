package desensitize

const mask = "******"

var (
	// TokenRule 会话令牌字段
	TokenRule = MustNewFieldRule("token", "token", mask)

	// PasswordRule 密码字段
	PasswordRule = MustNewFieldRule("password", "password", mask)

	// SecretRule 内部调用密钥字段
	SecretRule = MustNewFieldRule("secret", "secret", mask)

	// QueryTokenRule URL 查询串中的 token 参数 (token=abc&role=x -> token=******&role=x)
	QueryTokenRule = MustNewContentRule("query_token", `(token=)[^&\s"]+`, "${1}"+mask)

	// CookieRule 请求头中的会话 Cookie 值
	CookieRule = MustNewContentRule("session_cookie", `((?:customer|admin)_session=)[^;\s"]+`, "${1}"+mask)

	// EmailRule 邮箱 (user@example.com -> u***r@example.com)
	EmailRule = MustNewContentRule(
		"email",
		`\b([A-Za-z0-9])[A-Za-z0-9._%+-]*([A-Za-z0-9])@([A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`,
		"$1***$2@$3",
	)
)

// BuiltinRules 返回会话相关的默认规则，EmailRule 需要显式启用
func BuiltinRules() []Rule {
	return []Rule{
		TokenRule,
		PasswordRule,
		SecretRule,
		QueryTokenRule,
		CookieRule,
	}
}
