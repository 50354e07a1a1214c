// Package config defines the CLI surface (spec.md §6), following the
// teacher's flag-registration idiom (LocalFileStorageConfigAddOptions in
// das/celestia_stub/local_file_storage_service.go and the DAConfig koanf
// tags in das/celestia/celestia.go): a struct with koanf tags, a
// *pflag.FlagSet populated by an AddOptions function, and environment
// variable overrides loaded through koanf's env provider.
package config

import (
	"fmt"

	flag "github.com/spf13/pflag"

	daerr "github.com/opstack-da/celestia-fp/internal/daerrors"
)

// Config is the full CLI surface this extension adds on top of the base
// single-chain host (spec.md §6).
type Config struct {
	CelestiaConnection string `koanf:"celestia-connection"`
	CelestiaAuth       string `koanf:"celestia-auth"`
	CelestiaNamespace  string `koanf:"celestia-namespace"`
	BlobstreamAddress  string `koanf:"blobstream-address"`
	Server             bool   `koanf:"server"`
	DataDir            string `koanf:"data-dir"`
}

// Default mirrors the teacher's DefaultLocalFileStorageConfig idiom: a
// package-level zero-ish default the flag registration reads from.
var Default = Config{
	CelestiaConnection: "",
	Server:             false,
}

// AddOptions registers this extension's flags on f, following the teacher's
// LocalFileStorageConfigAddOptions convention: one f.<Type>(...) call per
// field, each naming its env-var override in the usage string where it
// has one (celestia-connection, celestia-auth, celestia-namespace). An empty
// prefix registers bare flag names; a non-empty prefix is dot-joined.
func AddOptions(prefix string, f *flag.FlagSet) {
	name := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + "." + s
	}
	f.String(name("celestia-connection"), Default.CelestiaConnection, "CelestiaDA JSON-RPC endpoint (env CELESTIA_CONNECTION)")
	f.String(name("celestia-auth"), Default.CelestiaAuth, "CelestiaDA bearer auth token (env AUTH_TOKEN)")
	f.String(name("celestia-namespace"), Default.CelestiaNamespace, "CelestiaDA namespace ID, hex-encoded (env NAMESPACE)")
	f.String(name("blobstream-address"), Default.BlobstreamAddress, "Blobstream contract address; derived from the settlement chain-id via the chain registry if omitted")
	f.Bool(name("server"), Default.Server, "attach to pre-opened hint/preimage file descriptors instead of spawning an in-process guest")
	f.String(name("data-dir"), Default.DataDir, "data directory for the persisted preimage key-value store")
}

// Validate checks the subset of invariants spec.md §7 assigns to
// ErrConfigInvalid: a non-empty Celestia connection URL and a non-empty
// namespace string are required to do anything useful. The namespace's hex
// is not decoded here.
func (c Config) Validate() error {
	if c.CelestiaConnection == "" {
		return fmt.Errorf("celestia-connection is required: %w", daerr.ErrConfigInvalid)
	}
	if c.CelestiaNamespace == "" {
		return fmt.Errorf("celestia-namespace is required: %w", daerr.ErrConfigInvalid)
	}
	return nil
}
