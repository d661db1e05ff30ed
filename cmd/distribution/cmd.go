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

package distribution

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/streamnative/cachering/cmd/config"
	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/ring"
)

const DefaultSamples = 100_000

var ErrInvalidSamples = errors.New("samples must be greater than 0")

var Cmd = NewCmd()

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Show how keys spread over the servers",
		Long: `Hash synthetic keys and print, per server, how many of them it owns next
to the share of the hash space its points cover.`,
		Args: cobra.NoArgs,
		RunE: exec,
	}
	flag.Ring(cmd)
	cmd.Flags().IntP("samples", "n", DefaultSamples, "Number of synthetic keys")
	cmd.Flags().String("prefix", "key-", "Prefix of the synthetic keys")
	cmd.SilenceUsage = true
	return cmd
}

// Stats is the load of one server.
type Stats struct {
	Server   string
	Weight   int
	Points   int
	Keys     int
	Share    float64
	ArcShare float64
}

// Sample assigns samples synthetic keys and reports the load of every
// server, in server set order.
func Sample(r *ring.Ring, prefix string, samples int) ([]Stats, error) {
	if samples <= 0 {
		return nil, ErrInvalidSamples
	}

	keys := map[string]int{}
	for i := 0; i < samples; i++ {
		server, err := r.ServerFor(prefix + strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		keys[server.Name()]++
	}

	points := map[string]int{}
	for _, p := range r.Points() {
		points[p.Server.Name()]++
	}

	arcs := r.Distribution()
	stats := make([]Stats, 0, r.ServerSet().Len())
	for _, server := range r.ServerSet().Servers() {
		name := server.Name()
		stats = append(stats, Stats{
			Server:   name,
			Weight:   server.Weight(),
			Points:   points[name],
			Keys:     keys[name],
			Share:    float64(keys[name]) / float64(samples),
			ArcShare: arcs[name],
		})
	}
	return stats, nil
}

func exec(cmd *cobra.Command, _ []string) error {
	conf, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	samples, _ := cmd.Flags().GetInt("samples")
	prefix, _ := cmd.Flags().GetString("prefix")

	r, err := conf.Ring()
	if err != nil {
		return err
	}

	stats, err := Sample(r, prefix, samples)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), r, samples, stats)
}

func render(out io.Writer, r *ring.Ring, samples int, stats []Stats) error {
	if _, err := fmt.Fprintf(out, "%s keys over %d servers, %s points (%s)\n\n",
		humanize.Comma(int64(samples)), len(stats), humanize.Comma(int64(r.Len())), r.Strategy().Name()); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVER\tWEIGHT\tPOINTS\tKEYS\tSHARE\tARC SHARE")
	for _, s := range stats {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.2f%%\t%.2f%%\n",
			s.Server, s.Weight, humanize.Comma(int64(s.Points)), humanize.Comma(int64(s.Keys)),
			s.Share*100, s.ArcShare*100)
	}
	return w.Flush()
}
