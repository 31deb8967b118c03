package protocol_test

import (
	"errors"
	"testing"

	"github.com/omochice/board-relay/pkg/protocol"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    protocol.Command
		wantErr error
	}{
		{
			name: "move command",
			text: "move:e4",
			want: protocol.Command{Action: "move", Argument: "e4"},
		},
		{
			name: "turn query with empty argument",
			text: "turn:",
			want: protocol.Command{Action: "turn"},
		},
		{
			name: "unknown action still parses",
			text: "hello:world",
			want: protocol.Command{Action: "hello", Argument: "world"},
		},
		{
			name: "empty action",
			text: ":x",
			want: protocol.Command{Argument: "x"},
		},
		{
			name:    "no separator",
			text:    "move",
			wantErr: protocol.ErrMalformedCommand,
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: protocol.ErrMalformedCommand,
		},
		{
			name:    "two separators",
			text:    "move:e2:e4",
			wantErr: protocol.ErrMalformedCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.ParseCommand(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseCommand() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCommand() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCommand_String(t *testing.T) {
	if got := protocol.Move("Nf3").String(); got != "move:Nf3" {
		t.Errorf("Move().String() = %q, want %q", got, "move:Nf3")
	}
	if got := protocol.Turn().String(); got != "turn:" {
		t.Errorf("Turn().String() = %q, want %q", got, "turn:")
	}
}
