package tws

import "testing"

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		code int
		want errorAction
	}{
		{"security not found", 200, actionFailSymbol},
		{"not subscribed", 354, actionFailSymbol},
		{"historical denied", 10168, actionFailSymbol},
		{"ticker limit", 10190, actionFailSymbol},
		{"stale request id", 502, actionRegenerateID},
		{"not connected", 504, actionSessionFatal},
		{"competing session", 10197, actionLogOnly},
		{"connectivity notice low edge", 2000, actionLogOnly},
		{"connectivity notice", 2104, actionLogOnly},
		{"connectivity notice high edge", 2999, actionLogOnly},
		{"just above the notice range", 3000, actionFailSymbol},
		{"unknown code fails the symbol", 1234, actionFailSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.code); got != tt.want {
				t.Errorf("classifyError(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
