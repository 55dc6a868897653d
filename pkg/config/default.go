package config

const (
	DefaultConcurrency = 50
	DefaultTimeout     = 1000 // milliseconds
	DefaultLogFile     = "./logs/portprobe.log"
)
