package cli

// RootArgs holds the persistent flags of the root command.
type RootArgs struct {
	logLevel         *string
	logFormat        *string
	cpuProfile       *string
	blockProfile     *string
	mutexProfile     *string
	blockProfileRate *int
	mutexProfileRate *int
}

func NewRootArgs() *RootArgs {
	return &RootArgs{
		logLevel:         new(string),
		logFormat:        new(string),
		cpuProfile:       new(string),
		blockProfile:     new(string),
		mutexProfile:     new(string),
		blockProfileRate: new(int),
		mutexProfileRate: new(int),
	}
}

func (a *RootArgs) GetLogLevel() string {
	return *a.logLevel
}

func (a *RootArgs) GetLogFormat() string {
	return *a.logFormat
}

func (a *RootArgs) GetCPUProfile() string {
	return *a.cpuProfile
}

func (a *RootArgs) GetBlockProfile() string {
	return *a.blockProfile
}

func (a *RootArgs) GetMutexProfile() string {
	return *a.mutexProfile
}

func (a *RootArgs) GetBlockProfileRate() int {
	return *a.blockProfileRate
}

func (a *RootArgs) GetMutexProfileRate() int {
	return *a.mutexProfileRate
}
