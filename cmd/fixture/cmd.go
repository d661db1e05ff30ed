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

package fixture

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/streamnative/cachering/cmd/config"
	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/fixture"
	"github.com/streamnative/cachering/hashing"
	"github.com/streamnative/cachering/ring"
	"github.com/streamnative/cachering/serverset"
)

var ErrMismatch = errors.New("fixture does not match the ring")

var Cmd = NewCmd()

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Generate and verify key assignment fixtures",
		Long: `Key assignment fixtures record the server owning each key, so that
different client implementations can check they agree on key ownership.`,
	}
	flag.Ring(cmd)
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newVerifyCmd())
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Record the owner of keys",
		Args:  cobra.NoArgs,
		RunE:  generate,
	}
	cmd.Flags().StringSliceP("key", "k", nil, "Key to record, can be repeated")
	cmd.Flags().StringP("out", "o", "", "Output file, the extension selects the format. Defaults to STDOUT")
	cmd.Flags().String("format", string(fixture.JSON), "Format used when writing to STDOUT: json or yaml")
	cmd.SilenceUsage = true
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check a fixture against the ring built from its servers",
		Long: `Rebuild the ring from the servers recorded in the fixture and check the
owner of every key. The strategy recorded in the fixture takes precedence over
the configured one.`,
		Args: cobra.ExactArgs(1),
		RunE: verify,
	}
	cmd.SilenceUsage = true
	return cmd
}

func generate(cmd *cobra.Command, _ []string) error {
	conf, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	keys, err := cmd.Flags().GetStringSlice("key")
	if err != nil {
		return err
	}

	r, err := conf.Ring()
	if err != nil {
		return err
	}

	f, err := fixture.FromRing(r, conf.Entries(), keys)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		if err := fixture.Write(out, f); err != nil {
			return err
		}
		slog.Info(
			"Fixture written",
			slog.String("path", out),
			slog.Int("keys", len(keys)),
			slog.String("strategy", f.Strategy),
		)
		return nil
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := fixture.ParseFormat(formatName)
	if err != nil {
		return err
	}

	b, err := fixture.Marshal(f, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func verify(cmd *cobra.Command, args []string) error {
	conf, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	f, err := fixture.Load(args[0])
	if err != nil {
		return err
	}

	strategy := conf.Strategy
	if f.Strategy != "" {
		if strategy, err = hashing.ByName(f.Strategy); err != nil {
			return err
		}
	}

	set, err := serverset.Build(f.Servers)
	if err != nil {
		return err
	}

	r, err := ring.New(set,
		ring.WithStrategy(strategy),
		ring.WithPointsPerServer(conf.PointsPerServer),
	)
	if err != nil {
		return err
	}

	mismatches, err := fixture.Verify(f, r)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range mismatches {
		if _, err := fmt.Fprintln(out, m.String()); err != nil {
			return err
		}
	}

	if len(mismatches) > 0 {
		return errors.Wrapf(ErrMismatch, "%d of %d keys differ using %s", len(mismatches), len(f.Results), strategy.Name())
	}

	_, err = fmt.Fprintf(out, "%d keys match using %s\n", len(f.Results), strategy.Name())
	return err
}
