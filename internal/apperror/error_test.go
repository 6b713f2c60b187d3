package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_UsesMessageTable(t *testing.T) {
	err := New(CodeNetworkSwitchFailed)

	if err.Message != "Network switch failed" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status %d", err.StatusCode)
	}
}

func TestError_IncludesContextAndCause(t *testing.T) {
	cause := errors.New("execution reverted")
	err := New(CodeEthereumRPCError, WithContext("eth_chainId"), WithCause(cause))

	got := err.Error()
	for _, want := range []string{"ETHEREUM_RPC_ERROR", "eth_chainId", "execution reverted"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
}

func TestGetCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("unlock: %w", Rejected(CodeRequestRejected, "unlock"))

	if GetCode(err) != CodeRequestRejected {
		t.Errorf("expected %s, got %s", CodeRequestRejected, GetCode(err))
	}
	if !HasCode(err, CodeRequestPending, CodeRequestRejected) {
		t.Error("expected HasCode to match")
	}
	if GetCode(errors.New("plain")) != CodeUnknownError {
		t.Error("expected unknown code for plain errors")
	}
}

func TestDefaultStatusCodes(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeRequestRejected, http.StatusForbidden},
		{CodeSignRejected, http.StatusForbidden},
		{CodeRequestPending, http.StatusConflict},
		{CodeSessionNotFound, http.StatusNotFound},
		{CodeSignTimedOut, http.StatusServiceUnavailable},
		{CodeNetworkNotSupported, http.StatusBadRequest},
		{CodeRateLimitExceeded, http.StatusTooManyRequests},
		{CodeSignFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code).StatusCode; got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(CodeWalletDetectionFailed)); got != "Wallet detection failed" {
		t.Errorf("unexpected message %q", got)
	}
	if got := MessageOf(errors.New("raw failure")); got != "raw failure" {
		t.Errorf("unexpected message %q", got)
	}
	if got := MessageOf(nil); got != "" {
		t.Errorf("expected empty message, got %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Error("expected nil for nil error")
	}

	plain := Wrap(errors.New("boom"), CodeInternalError, "unlock")
	if plain.Code != CodeInternalError || plain.Context != "unlock" || !strings.Contains(plain.Error(), "boom") {
		t.Errorf("unexpected wrap %v", plain)
	}

	shared := New(CodeSignRejected)
	wrapped := Wrap(fmt.Errorf("sign: %w", shared), CodeInternalError, "sign").WithTraceID("abc")
	if wrapped.Code != CodeSignRejected || wrapped.Context != "sign" || wrapped.TraceID != "abc" {
		t.Errorf("unexpected wrap %+v", wrapped)
	}
	if shared.Context != "" || shared.TraceID != "" {
		t.Errorf("wrapped error was mutated: %+v", shared)
	}
}

func TestToResponse(t *testing.T) {
	err := New(CodeNetworkSwitchFailed, WithContext("switch"), WithCause(errors.New("rpc down"))).WithTraceID("4bf92f35")

	res := err.ToResponse()
	if res.Code != CodeNetworkSwitchFailed || res.Message != "Network switch failed" || res.Context != "switch" || res.TraceID != "4bf92f35" {
		t.Errorf("unexpected response %+v", res)
	}
	if res.Timestamp == "" {
		t.Error("expected timestamp")
	}
}

func TestToLog_IncludesCauseAndStack(t *testing.T) {
	fields := New(CodeEthereumRPCError, WithCause(errors.New("reverted"))).ToLog()

	if fields["cause"] != "reverted" {
		t.Errorf("cause = %v", fields["cause"])
	}
	stack, _ := fields["stack"].(string)
	if !strings.Contains(stack, "TestToLog_IncludesCauseAndStack") {
		t.Errorf("stack does not name the caller: %q", stack)
	}
}
