package validator

import (
	"context"
	"net"
	"time"
)

// suggestSpan은 SuggestPort가 탐색하는 포트 개수입니다.
const suggestSpan = 100

// IsPortAvailable은 127.0.0.1에서 해당 포트를 바인드할 수 있는지 확인합니다.
// 바인드에 성공하면 아무 서비스도 이 포트를 점유하지 않은 것입니다.
func IsPortAvailable(port Port) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", port.String()))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// IsListening은 localhost의 해당 포트에서 연결을 받는 서비스가 있는지 확인합니다.
func IsListening(ctx context.Context, port Port, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort("localhost", port.String()))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// SuggestPort는 start부터 100개 범위에서 처음으로 사용 가능한 포트를 반환합니다.
// 사용 가능한 포트가 없으면 start를 그대로 반환합니다.
func SuggestPort(start Port) Port {
	end := int(start) + suggestSpan
	if end > MaxPort+1 {
		end = MaxPort + 1
	}
	for p := int(start); p < end; p++ {
		if p == 0 {
			continue
		}
		if IsPortAvailable(Port(p)) {
			return Port(p)
		}
	}
	return start
}
