// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	versionKey       = "version"
	configFileKey    = "config-file"
	genesisFileKey   = "genesis-file"
	vmConfigFileKey  = "vm-config-file"
	dbDirKey         = "db-dir"
	httpHostKey      = "http-host"
	httpPortKey      = "http-port"
	logLevelKey      = "log-level"
	buildIntervalKey = "build-interval"

	envPrefix = "IOTSTORE"
)

type params struct {
	version       bool
	genesisFile   string
	vmConfigFile  string
	dbDir         string
	httpHost      string
	httpPort      uint16
	logLevel      string
	buildInterval time.Duration
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("iotstorevm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.String(configFileKey, "", "Path to a config file holding any of these flags")
	fs.String(genesisFileKey, "", "Path to the genesis file. Defaults are used if empty")
	fs.String(vmConfigFileKey, "", "Path to the node-local vm config file")
	fs.String(dbDirKey, "", "Directory of the leveldb database. The chain is kept in memory if empty")
	fs.String(httpHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(httpPortKey, 9650, "Port of the HTTP server")
	fs.String(logLevelKey, "info", "The log level. One of crit, error, warn, info, debug")
	fs.Duration(buildIntervalKey, time.Second, "How often pending txs are built into a block if the engine isn't notified")

	return fs
}

// getViper returns the viper environment for the node binary
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("iotstorevm", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

func getParams(args []string) (*params, error) {
	v, err := getViper(args)
	if err != nil {
		return nil, err
	}

	port := v.GetUint(httpPortKey)
	if port > 65535 {
		return nil, fmt.Errorf("%s %d out of range", httpPortKey, port)
	}
	interval := v.GetDuration(buildIntervalKey)
	if interval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", buildIntervalKey, interval)
	}

	return &params{
		version:       v.GetBool(versionKey),
		genesisFile:   v.GetString(genesisFileKey),
		vmConfigFile:  v.GetString(vmConfigFileKey),
		dbDir:         v.GetString(dbDirKey),
		httpHost:      v.GetString(httpHostKey),
		httpPort:      uint16(port),
		logLevel:      v.GetString(logLevelKey),
		buildInterval: interval,
	}, nil
}

func readOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}
