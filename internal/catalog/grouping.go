package catalog

// ModuleGroup is a derived view of the catalog partitioned by module,
// annotated against a selected permission set. It is never stored.
type ModuleGroup struct {
	Module            string       `json:"module"`
	Permissions       []Permission `json:"permissions"`
	FullySelected     bool         `json:"fully_selected"`
	PartiallySelected bool         `json:"partially_selected"`
}

// GroupByModule partitions permissions by module, preserving catalog order
// within each group and ordering groups by first appearance.
func GroupByModule(perms []Permission) []ModuleGroup {
	index := make(map[string]int)
	var groups []ModuleGroup
	for _, p := range perms {
		i, ok := index[p.Module]
		if !ok {
			i = len(groups)
			index[p.Module] = i
			groups = append(groups, ModuleGroup{Module: p.Module})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	return groups
}

// GroupBySelection partitions the catalog by module and marks each group as
// fully or partially selected relative to the given permission set. A module
// is fully selected when every one of its permissions is selected, partially
// selected when some but not all are.
func GroupBySelection(all []Permission, selected []Permission) []ModuleGroup {
	chosen := make(map[int64]struct{}, len(selected))
	for _, p := range selected {
		chosen[p.ID] = struct{}{}
	}
	groups := GroupByModule(all)
	for i := range groups {
		count := 0
		for _, p := range groups[i].Permissions {
			if _, ok := chosen[p.ID]; ok {
				count++
			}
		}
		groups[i].FullySelected = count > 0 && count == len(groups[i].Permissions)
		groups[i].PartiallySelected = count > 0 && count < len(groups[i].Permissions)
	}
	return groups
}
