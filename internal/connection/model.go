package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrClosed           = errors.New("connection closed")
	ErrConnectionLost   = errors.New("connection lost")
	ErrUnsubscribed     = errors.New("unsubscribed")
	ErrInvalidSubscribe = errors.New("invalid subscription id")
)

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type (
	Options struct {
		DialTimeout    time.Duration
		RequestTimeout time.Duration
		// SubscriptionBuffer is the per subscription queue; a full queue stalls the reader.
		SubscriptionBuffer int
	}

	request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      uint64        `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
	}

	frame struct {
		ID     *uint64             `json:"id"`
		Result json.RawMessage     `json:"result"`
		Error  *RPCError           `json:"error"`
		Method string              `json:"method"`
		Params *notificationParams `json:"params"`
	}

	notificationParams struct {
		Subscription json.RawMessage `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	}

	callResult struct {
		result json.RawMessage
		err    error
	}

	pendingCall struct {
		ch chan callResult
		// set for subscribe requests, registered by the reader before the next frame is read
		sink *Subscription
	}
)

func DefaultOptions() Options {
	return Options{
		DialTimeout:        10 * time.Second,
		RequestTimeout:     30 * time.Second,
		SubscriptionBuffer: 1024,
	}
}

// resolve never blocks; a call is answered at most once.
func (pc *pendingCall) resolve(res callResult) {
	select {
	case pc.ch <- res:
	default:
	}
}

// subscriptionID normalises ids sent as JSON strings or numbers.
func subscriptionID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", ErrInvalidSubscribe
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidSubscribe, string(raw))
}
