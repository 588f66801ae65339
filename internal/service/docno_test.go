package service

import (
	"strings"
	"testing"
	"time"
)

func TestDayPrefix(t *testing.T) {
	prefix := dayPrefix("GRN")
	want := "GRN-" + time.Now().Format("20060102") + "-"
	if prefix != want {
		t.Fatalf("dayPrefix = %q, want %q", prefix, want)
	}
}

func TestFormatDocNo(t *testing.T) {
	got := formatDocNo("PO-20260830-", 7)
	if got != "PO-20260830-00007" {
		t.Fatalf("formatDocNo = %q", got)
	}
	if !strings.HasSuffix(formatDocNo("SALE-20260830-", 123), "00123") {
		t.Fatal("sequence not zero padded to five digits")
	}
}
