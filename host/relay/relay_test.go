package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendOrder_PreservedAcrossDrain(t *testing.T) {
	t.Parallel()

	sender := NewSender()
	receiver := NewReceiver(sender)

	sender.Send(Message("A"))
	sender.Send(Message("B"))
	sender.Send(Message("C"))
	sender.Close()

	var got []string
	for {
		msg, ok := receiver.Next()
		if !ok {
			break
		}
		got = append(got, string(msg))
	}

	require.Equal(t, []string{"A", "B", "C"}, got)
}

func TestNext_BlocksUntilMessageArrives(t *testing.T) {
	t.Parallel()

	sender := NewSender()
	receiver := NewReceiver(sender)

	done := make(chan Message, 1)
	go func() {
		msg, ok := receiver.Next()
		require.True(t, ok)
		done <- msg
	}()

	sender.Send(Message("later"))
	require.Equal(t, Message("later"), <-done)
}
