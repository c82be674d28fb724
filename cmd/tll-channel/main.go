/*
 * Copyright 2026 The tll-go Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command tll-channel opens a single reference-transport channel from
// a URL, drives its Process loop until interrupted, and prints the
// stat blocks it collected on exit. There is no package-level Context:
// one is built explicitly here, per the library's "no global state"
// design (spec §9).
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/stat"
	"github.com/tll-go/tll/transport/mem"
	"github.com/tll-go/tll/transport/null"
	"github.com/tll-go/tll/transport/zero"
)

func main() {
	url := flag.String("url", "zero://;size=64", "channel URL to open")
	flag.Parse()

	ctx := channel.NewDefaultContext()
	mustRegister(ctx, "null", null.New())
	mustRegister(ctx, "zero", zero.New())
	mustRegister(ctx, "mem", mem.New())

	c, err := ctx.New(*url)
	if err != nil {
		log.Fatalf("tll-channel: %v", err)
	}
	defer ctx.Free(c)

	if err := c.Open(nil); err != nil {
		log.Fatalf("tll-channel: open %s: %v", c.Name(), err)
	}
	defer c.Close(true)

	c.AddCallback(logData, nil, channel.ClassData)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			printStats(ctx)
			return
		case <-ticker.C:
			if c.Dcaps()&channel.DcapProcess != 0 {
				_ = c.Process(0, 0)
			}
		}
	}
}

func mustRegister(ctx *channel.Context, name string, f channel.Factory) {
	if err := ctx.Register(name, f); err != nil {
		log.Fatalf("tll-channel: register %s: %v", name, err)
	}
}

func logData(c *channel.Channel, msg *channel.Message) error {
	log.Printf("%s: seq=%d bytes=%d", c.Name(), msg.Seq, len(msg.Data))
	return nil
}

func printStats(ctx *channel.Context) {
	ctx.Stats().SwapAll(func(name string, p *stat.Page) {
		count, _ := p.Value("count")
		bytes, _ := p.Value("bytes")
		log.Printf("stat %s: count=%d bytes=%d", name, count, bytes)
	})
}
