package common

import (
	"fmt"
	"time"
)

// fileConfig mirrors Config for TOML decoding. Pointers distinguish "unset" from
// zero values so the file only overrides what it names; durations are strings
// such as "90s" or "10m".
type fileConfig struct {
	OCR struct {
		Engine        *string  `toml:"engine"`
		DockerBinary  *string  `toml:"docker_binary"`
		Image         *string  `toml:"image"`
		Binary        *string  `toml:"binary"`
		Languages     []string `toml:"languages"`
		ScanThreshold *int     `toml:"scan_threshold"`
		Timeout       *string  `toml:"timeout"`
	} `toml:"ocr"`
	PDF struct {
		Validate *bool `toml:"validate"`
	} `toml:"pdf"`
	Store struct {
		Driver          *string `toml:"driver"`
		SQLitePath      *string `toml:"sqlite_path"`
		DSN             *string `toml:"dsn"`
		MaxConns        *int32  `toml:"max_conns"`
		MinConns        *int32  `toml:"min_conns"`
		MaxConnLifetime *string `toml:"max_conn_lifetime"`
		MaxConnIdleTime *string `toml:"max_conn_idle_time"`
		DialTimeout     *string `toml:"dial_timeout"`
	} `toml:"store"`
	Server struct {
		HTTPAddr *string `toml:"http_addr"`
		GRPCAddr *string `toml:"grpc_addr"`
	} `toml:"server"`
	Batch struct {
		Workers    *int  `toml:"workers"`
		SkipHidden *bool `toml:"skip_hidden"`
	} `toml:"batch"`
	Export struct {
		Dir       *string `toml:"dir"`
		GCSBucket *string `toml:"gcs_bucket"`
		GCSPrefix *string `toml:"gcs_prefix"`
	} `toml:"export"`
}

func (f *fileConfig) apply(c *Config) error {
	setString(&c.OCR.Engine, f.OCR.Engine)
	setString(&c.OCR.DockerBinary, f.OCR.DockerBinary)
	setString(&c.OCR.Image, f.OCR.Image)
	setString(&c.OCR.Binary, f.OCR.Binary)
	if len(f.OCR.Languages) > 0 {
		c.OCR.Languages = f.OCR.Languages
	}
	if f.OCR.ScanThreshold != nil {
		c.OCR.ScanThreshold = *f.OCR.ScanThreshold
	}
	if err := setDuration(&c.OCR.Timeout, f.OCR.Timeout, "ocr.timeout"); err != nil {
		return err
	}

	if f.PDF.Validate != nil {
		c.PDF.Validate = *f.PDF.Validate
	}

	setString(&c.Store.Driver, f.Store.Driver)
	setString(&c.Store.SQLitePath, f.Store.SQLitePath)
	setString(&c.Store.DSN, f.Store.DSN)
	if f.Store.MaxConns != nil {
		c.Store.MaxConns = *f.Store.MaxConns
	}
	if f.Store.MinConns != nil {
		c.Store.MinConns = *f.Store.MinConns
	}
	if err := setDuration(&c.Store.MaxConnLifetime, f.Store.MaxConnLifetime, "store.max_conn_lifetime"); err != nil {
		return err
	}
	if err := setDuration(&c.Store.MaxConnIdleTime, f.Store.MaxConnIdleTime, "store.max_conn_idle_time"); err != nil {
		return err
	}
	if err := setDuration(&c.Store.DialTimeout, f.Store.DialTimeout, "store.dial_timeout"); err != nil {
		return err
	}

	setString(&c.Server.HTTPAddr, f.Server.HTTPAddr)
	setString(&c.Server.GRPCAddr, f.Server.GRPCAddr)

	if f.Batch.Workers != nil {
		c.Batch.Workers = *f.Batch.Workers
	}
	if f.Batch.SkipHidden != nil {
		c.Batch.SkipHidden = *f.Batch.SkipHidden
	}

	setString(&c.Export.Dir, f.Export.Dir)
	setString(&c.Export.GCSBucket, f.Export.GCSBucket)
	setString(&c.Export.GCSPrefix, f.Export.GCSPrefix)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, key string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
