package protocol

import "testing"

func TestPayloadEnd(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want int
	}{
		{name: "empty", data: []byte{}, want: 0},
		{name: "leading zero", data: []byte{0, 'a'}, want: 0},
		{name: "leading delimiter", data: []byte{';', 'a'}, want: 0},
		{name: "zero in the middle", data: []byte{'a', 'b', 0, 'c'}, want: 2},
		{name: "no terminator", data: []byte{'a', 'b', 'c'}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payloadEnd(tt.data); got != tt.want {
				t.Errorf("payloadEnd() = %d, want %d", got, tt.want)
			}
		})
	}
}
