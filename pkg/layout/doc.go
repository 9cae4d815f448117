// Package layout resolves the timing of a schedule tree with a two-pass
// Measure/Arrange algorithm.
//
// # Overview
//
// Elements of a schedule carry no absolute time. This package decides, for
// every node, how much time it needs and where it sits relative to its parent:
//
//  1. Measure walks the tree bottom-up. Each node is told how much time is
//     available and reports its desired duration (content plus margins).
//  2. Arrange walks the tree top-down. Each node receives its final slot and
//     places its children inside it according to the container policy.
//
// Results live in a [Layout], a side table indexed by [NodeID] in pre-order.
// The schedule tree itself is never modified, so one tree can be laid out
// many times, concurrently, with different budgets.
//
// # Container Policies
//
//   - Stack: children are packed one after another on per-channel lanes. A
//     child starts once every lane it touches is free; children with no
//     channels (an empty Barrier, an empty container) touch every lane, so a
//     Barrier aligns the lanes it lists. Backwards stacks pack toward the end.
//   - Absolute: children sit at their declared offsets with their desired
//     durations.
//   - Grid: Fixed columns have their declared width, Auto columns take the
//     widest single-column child, Star columns share the remaining width in
//     proportion to their weight without shrinking below their content.
//   - Repeat: the child gets an equal share of the time left after spacing.
//
// # Overflow
//
// A layout never truncates content. When a node cannot fit in the time it is
// given, Measure or Arrange fails with an [*OverflowError] naming the node
// path, the required and the allocated duration. It carries the
// LAYOUT_OVERFLOW code from pkg/errors.
//
// # Usage
//
//	l, err := layout.Run(root, layout.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(l.Duration(l.Root()))
package layout
