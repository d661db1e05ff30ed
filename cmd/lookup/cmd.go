// Copyright 2023 StreamNative, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lookup

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/streamnative/cachering/cmd/config"
	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/fixture"
	"github.com/streamnative/cachering/ring"
)

var Cmd = NewCmd()

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup [KEY...]",
		Short: "Find the server owning keys",
		Long: `Print the server that owns each key. Keys are read one per line from
STDIN when none are given as arguments.`,
		RunE: exec,
	}
	flag.Ring(cmd)
	cmd.Flags().Bool("json", false, "Print one JSON object per key")
	cmd.SilenceUsage = true
	return cmd
}

func exec(cmd *cobra.Command, args []string) error {
	conf, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	r, err := conf.Ring()
	if err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		for _, key := range args {
			if err := printOwner(out, r, key, asJSON); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		key := strings.TrimRight(scanner.Text(), "\r")
		if key == "" {
			continue
		}
		if err := printOwner(out, r, key, asJSON); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "failed to read keys")
}

func printOwner(out io.Writer, r *ring.Ring, key string, asJSON bool) error {
	server, err := r.ServerFor(key)
	if err != nil {
		return err
	}

	if asJSON {
		return json.NewEncoder(out).Encode(fixture.Result{
			Key:    key,
			Server: server.Name(),
			Weight: server.Weight(),
		})
	}

	_, err = fmt.Fprintf(out, "%s %s %d\n", key, server.Name(), server.Weight())
	return err
}
