package models

import (
	"database/sql/driver"
	"encoding/json"
)

// UintArray 无符号整型数组，存成 JSON 列，用于已通知承运人ID集合
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (u UintArray) Value() (driver.Value, error) {
	if u == nil {
		return nil, nil
	}
	return json.Marshal(u)
}

// Scan 实现 sql.Scanner 接口
func (u *UintArray) Scan(value interface{}) error {
	if value == nil {
		*u = UintArray{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, u)
	case string:
		return json.Unmarshal([]byte(v), u)
	}
	return nil
}

// Contains 判断是否包含指定ID
func (u UintArray) Contains(id uint) bool {
	for _, v := range u {
		if v == id {
			return true
		}
	}
	return false
}

// MergeUnique 合并并去重，返回新数组
func (u UintArray) MergeUnique(ids []uint) UintArray {
	merged := make(UintArray, 0, len(u)+len(ids))
	seen := make(map[uint]struct{}, len(u)+len(ids))
	for _, v := range u {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		merged = append(merged, v)
	}
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		merged = append(merged, v)
	}
	return merged
}
