package naming

import (
	"reflect"
	"testing"
)

func TestWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"OrderRepository", []string{"order", "repository"}},
		{"order_service", []string{"order", "service"}},
		{"HTTPServer", []string{"http", "server"}},
		{"user-profile.view", []string{"user", "profile", "view"}},
		{"__init__", []string{"init"}},
		{"getV2Orders", []string{"get", "v2", "orders"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Words(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTrailing(t *testing.T) {
	t.Parallel()

	table := map[string]int{"service": 1, "usecase": 2}
	if v, n := Trailing(Words("CreateOrderUseCase"), table); v != 2 || n != 2 {
		t.Errorf("two-word suffix = %d, %d", v, n)
	}
	if v, n := Trailing(Words("order_service"), table); v != 1 || n != 1 {
		t.Errorf("one-word suffix = %d, %d", v, n)
	}
	if _, n := Trailing(Words("device"), table); n != 0 {
		t.Errorf("device matched %d words", n)
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	if got := Stem("app/models/order.py"); got != "order" {
		t.Errorf("Stem = %q", got)
	}
	if got := Dirs("app/models/order.py"); !reflect.DeepEqual(got, []string{"app", "models"}) {
		t.Errorf("Dirs = %v", got)
	}
	if got := Dirs("main.go"); got != nil {
		t.Errorf("Dirs(main.go) = %v", got)
	}

	table := map[string]string{"api": "api", "services": "svc"}
	if v, ok := NearestDir("services/billing/API/h.py", table); !ok || v != "api" {
		t.Errorf("NearestDir = %q, %v", v, ok)
	}
	if _, ok := NearestDir("lib/h.py", table); ok {
		t.Error("NearestDir matched lib")
	}
}
