package fetch

import "fmt"

// FetchError 携带基金代码的抓取错误
type FetchError struct {
	FundCode string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.FundCode, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
