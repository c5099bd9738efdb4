package config

import (
	"fmt"
	"regexp"
	"runtime"
	"strconv"
)

var localTarget = regexp.MustCompile(`^local(?:\[(\*|\d+)\])?$`)

// Parallelism resolves EXECUTION_TARGET into the number of workers used by the
// ranking engine. Only local targets are supported: "local", "local[N]" and "local[*]".
func (c *Config) Parallelism() (int, error) {
	return ParseExecutionTarget(c.ExecutionTarget)
}

func ParseExecutionTarget(target string) (int, error) {
	m := localTarget.FindStringSubmatch(target)
	if m == nil {
		return 0, fmt.Errorf("unsupported execution target %q", target)
	}
	switch m[1] {
	case "":
		return 1, nil
	case "*":
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid worker count in execution target %q", target)
	}
	return n, nil
}
