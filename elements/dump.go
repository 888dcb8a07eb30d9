// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// FromDump is a push source that replays a pcap file, one packet per
// task invocation, using each record's captured timestamp as the
// packet's ingress-timestamp annotation. It is the engine's stand-in for
// a real NIC source when driving a config from a capture rather than
// live traffic (S1's Echo scenario).
type FromDump struct {
	element.Skeleton

	path string
	f    io.Closer
	r    *pcapgo.Reader
	task element.Task
}

func init() {
	element.Register("FromDump", func() element.Base { return &FromDump{} })
}

func (s *FromDump) PortCounts() (int, int, int, int) { return 0, 0, 1, 1 }
func (s *FromDump) Processing() element.Direction    { return element.Push }

func (s *FromDump) Configure(args string) error {
	positional, _ := parseArgs(args)
	if len(positional) == 0 {
		return errMissingArg("FromDump", "FILENAME")
	}
	s.path = positional[0]
	return nil
}

func (s *FromDump) Initialize() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return err
	}
	s.f, s.r = f, r
	s.task = s.Router.NewTask(s)
	s.task.Reschedule()
	return nil
}

func (s *FromDump) Cleanup(element.Stage) {
	if s.f != nil {
		s.f.Close()
	}
}

func (s *FromDump) RunTask() bool {
	data, ci, err := s.r.ReadPacketData()
	if err == io.EOF {
		return false
	}
	if err != nil {
		return false
	}
	pkt := packet.FromBytes(data)
	pkt.SetTimestamp(ci.Timestamp)
	s.Output(0).Push(pkt)
	return true
}

// ToDump is a push sink that appends every packet it receives to a pcap
// file, flushing after each write so a reader tailing the file sees
// packets promptly.
type ToDump struct {
	element.Skeleton

	path string
	f    *os.File
	w    *pcapgo.Writer
}

func init() {
	element.Register("ToDump", func() element.Base { return &ToDump{} })
}

func (s *ToDump) PortCounts() (int, int, int, int) { return 1, 1, 0, 0 }
func (s *ToDump) Processing() element.Direction    { return element.Push }

func (s *ToDump) Configure(args string) error {
	positional, _ := parseArgs(args)
	if len(positional) == 0 {
		return errMissingArg("ToDump", "FILENAME")
	}
	s.path = positional[0]
	return nil
}

func (s *ToDump) Initialize() error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return err
	}
	s.f, s.w = f, w
	return nil
}

func (s *ToDump) Cleanup(element.Stage) {
	if s.f != nil {
		s.f.Close()
	}
}

func (s *ToDump) Receive(_ int, pkt *packet.Packet) {
	ts := pkt.Timestamp()
	if ts.Unix() <= 0 {
		ts = time.Now()
	}
	_ = s.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: pkt.Length(),
		Length:        pkt.Length(),
	}, pkt.Data())
	pkt.Release()
}
