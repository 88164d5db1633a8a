package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	PortFloor = 1024
	PortCeil  = 65535
	// PortRangeLimit caps how many ports a single "a-b" entry may expand to.
	PortRangeLimit = 1000
)

var (
	portRangeRe = regexp.MustCompile(`^(\d{1,5})\s*-\s*(\d{1,5})$`)
	portRe      = regexp.MustCompile(`^\d{1,5}$`)
)

// ParsePorts expands an allocation spec such as "25565-25570, 27015" into a
// sorted list of unique ports.
func ParsePorts(spec string) ([]int, error) {
	seen := make(map[int]struct{})
	for _, raw := range strings.Split(spec, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		if loc := portRangeRe.FindStringSubmatch(entry); loc != nil {
			start, _ := strconv.Atoi(loc[1])
			end, _ := strconv.Atoi(loc[2])
			if start > end {
				return nil, fmt.Errorf("port range %q is reversed", entry)
			}
			if end-start+1 > PortRangeLimit {
				return nil, fmt.Errorf("port range %q exceeds the limit of %d ports", entry, PortRangeLimit)
			}
			if err := checkPort(start, entry); err != nil {
				return nil, err
			}
			if err := checkPort(end, entry); err != nil {
				return nil, err
			}
			for p := start; p <= end; p++ {
				seen[p] = struct{}{}
			}
			continue
		}

		if !portRe.MatchString(entry) {
			return nil, fmt.Errorf("unable to parse port %q", entry)
		}
		port, _ := strconv.Atoi(entry)
		if err := checkPort(port, entry); err != nil {
			return nil, err
		}
		seen[port] = struct{}{}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("no ports found in %q", spec)
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports, nil
}

func checkPort(port int, entry string) error {
	if port < PortFloor || port > PortCeil {
		return fmt.Errorf("port %d in %q must be between %d and %d", port, entry, PortFloor, PortCeil)
	}
	return nil
}
