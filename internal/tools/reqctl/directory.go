package reqctl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/reqforge/reqforge/internal/requirements/domain"
)

// staticDirectory is a fixed actor directory for single-machine use. Every
// listed endorser holds the same capabilities in every container.
type staticDirectory struct {
	capabilities map[string]domain.Capabilities
}

// parseEndorsers parses "alice=product,bob=goals;system" into a directory.
// Grants: product (covers all families), implementation, goals, project,
// environment, system.
func parseEndorsers(spec string) (*staticDirectory, error) {
	directory := &staticDirectory{capabilities: make(map[string]domain.Capabilities)}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return directory, nil
	}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid endorser entry %q", entry)
		}
		id := strings.TrimSpace(parts[0])
		var capabilities domain.Capabilities
		for _, grant := range strings.Split(parts[1], ";") {
			switch strings.TrimSpace(grant) {
			case "product":
				capabilities.ProductOwner = true
			case "implementation":
				capabilities.ImplementationOwner = true
			case "goals":
				capabilities.EndorseGoals = true
			case "project":
				capabilities.EndorseProject = true
			case "environment":
				capabilities.EndorseEnvironment = true
			case "system":
				capabilities.EndorseSystem = true
			case "":
			default:
				return nil, fmt.Errorf("unknown grant %q for endorser %s", grant, id)
			}
		}
		directory.capabilities[id] = capabilities
	}
	return directory, nil
}

func (d *staticDirectory) Capabilities(ctx context.Context, actorID, containerID string) (domain.Capabilities, error) {
	return d.capabilities[actorID], nil
}

func (d *staticDirectory) EligibleEndorsers(ctx context.Context, containerID string, family domain.Family) ([]string, error) {
	var ids []string
	for id, capabilities := range d.capabilities {
		if capabilities.CanEndorse(family) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
