package postgres

import "time"

func nowTime() time.Time { return time.Now().UTC() }

func nowUnix() int64 { return nowTime().Unix() }
