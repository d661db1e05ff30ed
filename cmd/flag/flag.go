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

package flag

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streamnative/cachering/hashing"
	"github.com/streamnative/cachering/ring"
)

const (
	ConfigFileName      = "conf"
	ServerName          = "server"
	StrategyName        = "strategy"
	PointsPerServerName = "points-per-server"
	MetricsAddrName     = "metrics-addr"

	DefaultMetricsAddr = "0.0.0.0:8080"
)

// Ring registers the flags that describe a ring on cmd and all of its
// subcommands.
func Ring(cmd *cobra.Command) {
	ConfigFile(cmd)
	Servers(cmd)
	Strategy(cmd)
	PointsPerServer(cmd)
}

func ConfigFile(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(ConfigFileName, "f", "", "YAML config file")
}

func Servers(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSliceP(ServerName, "s", nil, "Server as host:port[:weight], can be repeated")
}

func Strategy(cmd *cobra.Command) {
	cmd.PersistentFlags().String(StrategyName, hashing.KetamaName,
		fmt.Sprintf("Hash strategy: %s", strings.Join(hashing.Names(), ", ")))
}

func PointsPerServer(cmd *cobra.Command) {
	cmd.PersistentFlags().Int(PointsPerServerName, ring.DefaultPointsPerServer, "Continuum points per unit of weight")
}

func MetricsAddr(cmd *cobra.Command) {
	cmd.Flags().String(MetricsAddrName, DefaultMetricsAddr, "Metrics service bind address")
}
