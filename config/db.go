package config

import (
	"fmt"
	"path/filepath"

	"github.com/quorumnet/partyd/store/bbolt"
)

const (
	DefaultBackend    = "bbolt"
	DefaultDBFileName = "partyd.db"
	DefaultBucketName = "partyd"
)

// DBConfig selects and locates the key-value backend.
type DBConfig struct {
	Backend    string `long:"backend" description:"Possible database to choose as backend"`
	DBPath     string `long:"dbpath" description:"The directory path in which the database file is stored"`
	DBFileName string `long:"dbfilename" description:"The name of the database file"`
	BucketName string `long:"bucketname" description:"The name of the bucket party records are stored in"`
}

func DefaultDBConfigWithHomePath(homePath string) *DBConfig {
	return &DBConfig{
		Backend:    DefaultBackend,
		DBPath:     DataDir(homePath),
		DBFileName: DefaultDBFileName,
		BucketName: DefaultBucketName,
	}
}

func (cfg *DBConfig) Validate() error {
	// TODO: support lnd kvdb backends once more than bbolt is needed
	if cfg.Backend != DefaultBackend {
		return fmt.Errorf("unsupported DB backend %q", cfg.Backend)
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("DB path should not be empty")
	}
	if cfg.DBFileName == "" {
		return fmt.Errorf("DB file name should not be empty")
	}
	if cfg.BucketName == "" {
		return fmt.Errorf("bucket name should not be empty")
	}
	return nil
}

// ToBoltOptions maps the config onto the bbolt backend options.
func (cfg *DBConfig) ToBoltOptions() bbolt.Options {
	return bbolt.Options{
		BucketName: cfg.BucketName,
		Path:       filepath.Join(cfg.DBPath, cfg.DBFileName),
	}
}
