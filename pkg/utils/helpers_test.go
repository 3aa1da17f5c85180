package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestCalculateSHA256(t *testing.T) {
	// 空输入的SHA-256是固定值
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", CalculateSHA256(nil))
	// 相同内容哈希一致，不同内容哈希不同
	assert.Equal(t, CalculateSHA256([]byte("hello")), CalculateSHA256([]byte("hello")))
	assert.NotEqual(t, CalculateSHA256([]byte("hello")), CalculateSHA256([]byte("hello!")))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1.5, 0, 1))
	assert.Equal(t, 1.0, Clamp(3.7, 0, 1))
	assert.Equal(t, 0.42, Clamp(0.42, 0, 1))
}

func TestConvertArrayToJSON(t *testing.T) {
	// 空数组与nil都返回 "[]"
	assert.Equal(t, datatypes.JSON("[]"), ConvertArrayToJSON(nil))
	assert.Equal(t, datatypes.JSON("[]"), ConvertArrayToJSON([]string{}))

	j := ConvertArrayToJSON([]string{"go", "sql"})
	assert.JSONEq(t, `["go","sql"]`, string(j))
}

func TestJSONToArrayRoundTrip(t *testing.T) {
	arr := []string{"python", "docker", "kubernetes"}
	back := JSONToArray(ConvertArrayToJSON(arr))
	assert.Equal(t, arr, back)

	// 非法JSON降级为空数组
	assert.Equal(t, []string{}, JSONToArray(datatypes.JSON("{not json")))
	assert.Equal(t, []string{}, JSONToArray(nil))
}

func TestMapToJSON(t *testing.T) {
	j, err := MapToJSON(nil)
	assert.NoError(t, err)
	assert.Equal(t, datatypes.JSON("{}"), j)

	j, err = MapToJSON(map[string]interface{}{"score": 88.5})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"score":88.5}`, string(j))
}

func TestTimePtr(t *testing.T) {
	// 零值时间返回nil，其余返回指针
	assert.Nil(t, TimePtr(time.Time{}))
	now := time.Now()
	p := TimePtr(now)
	assert.NotNil(t, p)
	assert.Equal(t, now, *p)
}
