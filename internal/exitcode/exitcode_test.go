package exitcode

import "testing"

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   int
	}{
		{401, AuthError},
		{403, AuthError},
		{400, UserError},
		{404, UserError},
		{409, UserError},
		{422, UserError},
		{500, BackendError},
		{502, BackendError},
		{0, BackendError},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status); got != tt.want {
			t.Errorf("FromStatus(%d) = %d, want %d", tt.status, got, tt.want)
		}
	}
}
