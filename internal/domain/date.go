package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date 日历日，库中为 DATE，JSON 为 "YYYY-MM-DD"
type Date string

func DateOf(t time.Time) Date { return Date(t.Format(DateLayout)) }

// DayOf 业务日期统一按 UTC 取日，与服务器时区无关
func DayOf(t time.Time) Date { return DateOf(t.UTC()) }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

func (d Date) Time() (time.Time, error) { return time.Parse(DateLayout, string(d)) }

func (d Date) IsZero() bool { return d == "" }

func (Date) GormDataType() string { return "date" }

func (d *Date) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(x)
	case string:
		*d = Date(truncDay(x))
	case []byte:
		*d = Date(truncDay(string(x)))
	default:
		return fmt.Errorf("domain.Date: cannot scan %T", v)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func truncDay(s string) string {
	if len(s) > len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}
