// Package validator는 사용자가 입력한 포트 문자열을 검증합니다.
// 검증 함수는 부작용이 없으며 여러 고루틴에서 동시에 호출해도 안전합니다.
package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPort는 허용되는 가장 큰 포트 번호입니다.
const MaxPort = 65535

// Port는 1-65535 범위로 검증된 포트 번호입니다.
type Port uint16

// 검증 오류 종류
var (
	ErrEmpty          = errors.New("포트 번호가 비어 있습니다")
	ErrNotNumber      = errors.New("포트 번호는 숫자여야 합니다")
	ErrZeroNotAllowed = errors.New("포트 번호 0은 사용할 수 없습니다")
	ErrOutOfRange     = errors.New("포트 번호가 범위를 벗어났습니다")
)

// OutOfRangeError는 65535를 초과하는 값이 입력되었을 때 반환됩니다.
// errors.Is(err, ErrOutOfRange)로 판별할 수 있습니다.
type OutOfRangeError struct {
	Value uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("포트 번호는 1-%d 사이여야 합니다 (현재: %d)", MaxPort, e.Value)
}

// Is는 ErrOutOfRange와의 비교를 지원합니다.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// ValidatePort는 포트 문자열을 검증하고 Port로 변환합니다.
// 앞뒤 공백은 제거되며, 부호 +는 하나만 허용합니다.
// 32비트에 들어가지 않는 값은 숫자가 아닌 것으로 취급합니다.
func ValidatePort(input string) (Port, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrEmpty
	}

	n, err := strconv.ParseUint(strings.TrimPrefix(trimmed, "+"), 10, 32)
	if err != nil {
		return 0, ErrNotNumber
	}

	if n == 0 {
		return 0, ErrZeroNotAllowed
	}
	if n > MaxPort {
		return 0, &OutOfRangeError{Value: uint32(n)}
	}

	return Port(n), nil
}

// String은 포트를 10진수 문자열로 반환합니다.
func (p Port) String() string {
	return strconv.FormatUint(uint64(p), 10)
}
