package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// TimePtr returns a pointer to a time.Time object
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// IntPtr returns a pointer to an int
func IntPtr(i int) *int {
	return &i
}

// Float64Ptr returns a pointer to a float64
func Float64Ptr(f float64) *float64 {
	return &f
}

// CalculateSHA256 computes the SHA-256 hash of a byte slice.
func CalculateSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Clamp 将v限制在[lo,hi]区间内
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ConvertArrayToJSON 辅助函数: 将字符串数组转换为JSON
func ConvertArrayToJSON(arr []string) datatypes.JSON {
	if len(arr) == 0 {
		return datatypes.JSON("[]")
	}

	jsonBytes, err := json.Marshal(arr)
	if err != nil {
		// 数组序列化只会在极端情况下失败，返回空数组作为安全默认值
		return datatypes.JSON("[]")
	}

	return datatypes.JSON(jsonBytes)
}

// MapToJSON 辅助函数: 将任意map序列化为JSON
func MapToJSON(m map[string]interface{}) (datatypes.JSON, error) {
	if len(m) == 0 {
		return datatypes.JSON("{}"), nil
	}
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(jsonBytes), nil
}

// JSONToArray 辅助函数: 将JSON反序列化回字符串数组，失败时返回空数组
func JSONToArray(j datatypes.JSON) []string {
	if len(j) == 0 {
		return []string{}
	}
	var arr []string
	if err := json.Unmarshal(j, &arr); err != nil {
		return []string{}
	}
	return arr
}
