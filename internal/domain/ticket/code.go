package ticket

import (
	"crypto/rand"
	"math/big"

	"github.com/oklog/ulid/v2"
)

// codeAlphabet 去掉了容易混淆的0/O、1/I
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// CodeGenerator 生成检票码
type CodeGenerator func() (string, error)

// RandomCode 默认检票码:6位,来自crypto/rand
func RandomCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// NewKey 门票Key使用ULID(按时间有序,便于按创建顺序排查)
func NewKey() string {
	return ulid.Make().String()
}
