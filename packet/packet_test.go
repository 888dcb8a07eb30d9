// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet_test

import (
	"testing"
	"time"

	"github.com/clickrt/clickrt/packet"
)

func TestFromBytesRoundTrip(t *testing.T) {
	want := []byte("hello clickrt")
	p := packet.FromBytes(want)
	if string(p.Data()) != string(want) {
		t.Fatalf("Data() = %q, want %q", p.Data(), want)
	}
}

func TestCloneSharesUntilUniqueify(t *testing.T) {
	p := packet.FromBytes([]byte("abc"))
	clone := p.Clone()

	clone.Uniqueify()
	clone.Data()[0] = 'X'

	if p.Data()[0] != 'a' {
		t.Fatalf("mutation through clone leaked into original: %q", p.Data())
	}
	if clone.Data()[0] != 'X' {
		t.Fatalf("clone mutation did not apply: %q", clone.Data())
	}
}

func TestPrependAppend(t *testing.T) {
	p := packet.NewSize(4)
	copy(p.Data(), []byte{1, 2, 3, 4})

	hdr := p.Prepend(2)
	hdr[0], hdr[1] = 0xAA, 0xBB

	if got, want := p.Length(), 6; got != want {
		t.Fatalf("Length() = %d, want %d", got, want)
	}
	if p.Data()[0] != 0xAA || p.Data()[1] != 0xBB {
		t.Fatalf("prepended header not visible in Data(): %v", p.Data())
	}

	tail := p.Append(1)
	tail[0] = 0xFF
	if p.Data()[len(p.Data())-1] != 0xFF {
		t.Fatalf("appended byte not visible: %v", p.Data())
	}
}

func TestAnnotationsSurviveClone(t *testing.T) {
	p := packet.FromBytes([]byte("x"))
	p.SetDestIP([4]byte{10, 0, 0, 1})
	now := time.Unix(1700000000, 0)
	p.SetTimestamp(now)

	clone := p.Clone()
	if clone.DestIP() != [4]byte{10, 0, 0, 1} {
		t.Fatalf("clone lost DestIP annotation")
	}
	if !clone.Timestamp().Equal(now) {
		t.Fatalf("clone lost Timestamp annotation: got %v want %v", clone.Timestamp(), now)
	}
}

func TestTrim(t *testing.T) {
	p := packet.FromBytes([]byte("0123456789"))
	p.Trim(2)
	p.TrimTail(3)
	if got, want := string(p.Data()), "23456"; got != want {
		t.Fatalf("Data() = %q, want %q", got, want)
	}
}
