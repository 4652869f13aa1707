package spec

// File is the top-level ingest spec (ingest.yml). Everything in it can
// also arrive through env vars; the file is optional.
type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source struct {
		Kind   string `yaml:"kind"`
		Config string `yaml:"config"`
	} `yaml:"source"`

	Sink struct {
		Driver string `yaml:"driver"` // "kafka" (default) or "stdout"
		Config string `yaml:"config"`
	} `yaml:"sink"`

	Debug debugSection `yaml:"debug"`
}

// debugSection feeds the stdout debug sink.
type debugSection struct {
	PrintCounter  bool `yaml:"print_counter"`
	PrintRecords  bool `yaml:"print_records"`
	ValueMaxBytes int  `yaml:"value_max_bytes"`
}
