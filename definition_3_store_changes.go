package tymbox

// changesBetween lists the changes turning before into after.
// Removals come first by descending position, then insertions by ascending
// position, then updates at their final positions, so a subscriber applying
// them in order always reads positions of the state it can see.
// Tasks never swap order, kept tasks keep their relative positions.
func changesBetween(before, after *taskStore) []Change {
	var result []Change

	for pos := len(before.tasks) - 1; pos >= 0; pos-- {
		if _, kept := after.index[before.tasks[pos].ID]; kept {
			continue
		}

		result = appendChange(
			result,
			Change{
				Kind:     ChangeRemove,
				FirstPos: pos,
				LastPos:  pos,
			},
		)
	}

	for pos, task := range after.tasks {
		if _, existed := before.index[task.ID]; existed {
			continue
		}

		result = appendChange(
			result,
			Change{
				Kind:     ChangeInsert,
				FirstPos: pos,
				LastPos:  pos,
			},
		)
	}

	for pos, task := range after.tasks {
		previousPos, existed := before.index[task.ID]
		if !existed {
			continue
		}

		var fields FieldMask

		previous := before.tasks[previousPos]

		if previous.TimeStart != task.TimeStart {
			fields |= FieldTimeStart
		}

		if previous.TimeEnd != task.TimeEnd {
			fields |= FieldTimeEnd
		}

		if before.windows[previousPos] != after.windows[pos] {
			fields |= FieldWindow
		}

		if fields == 0 {
			continue
		}

		result = appendChange(
			result,
			Change{
				Kind:     ChangeUpdate,
				FirstPos: pos,
				LastPos:  pos,
				Fields:   fields,
			},
		)
	}

	return result
}

// appendChange merges the change into the last one when they form a run.
func appendChange(changes []Change, change Change) []Change {
	if len(changes) == 0 {
		return append(changes, change)
	}

	last := &changes[len(changes)-1]

	if last.Kind != change.Kind || last.Fields != change.Fields {
		return append(changes, change)
	}

	switch {
	// removals arrive by descending position
	case change.Kind == ChangeRemove && change.LastPos+1 == last.FirstPos:
		last.FirstPos = change.FirstPos

	case change.Kind != ChangeRemove && last.LastPos+1 == change.FirstPos:
		last.LastPos = change.LastPos

	default:
		return append(changes, change)
	}

	return changes
}
