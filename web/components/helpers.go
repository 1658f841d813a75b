package components

// orDefault はnilまたは空文字列の場合にdefを返す
func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
