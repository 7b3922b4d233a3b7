package task

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/projnorm/internal/dag"
)

// ErrDuplicateTask is returned when a task name is registered twice.
var ErrDuplicateTask = errors.New("task already registered")

// Rule configures tasks as they are added to a container.
type Rule func(t *Task) error

// Container holds the tasks of one subproject.
type Container struct {
	project string
	tasks   []*Task
	byName  map[string]*Task
	rules   []Rule
}

// NewContainer returns an empty container for project.
func NewContainer(project string) *Container {
	return &Container{
		project: project,
		byName:  make(map[string]*Task),
	}
}

// Register adds a new task, configures it and then applies every rule
// registered with WhenTaskAdded.
func (c *Container) Register(name string, configure ...func(*Task)) (*Task, error) {
	if _, exists := c.byName[name]; exists {
		return nil, fmt.Errorf("%w: :%s:%s", ErrDuplicateTask, c.project, name)
	}

	t := New(c.project, name)
	for _, fn := range configure {
		fn(t)
	}
	c.tasks = append(c.tasks, t)
	c.byName[name] = t

	for _, rule := range c.rules {
		if err := rule(t); err != nil {
			return t, fmt.Errorf("configuring %s: %w", t.Path(), err)
		}
	}
	return t, nil
}

// WhenTaskAdded applies rule to every existing task and to tasks added later.
func (c *Container) WhenTaskAdded(rule Rule) error {
	c.rules = append(c.rules, rule)
	for _, t := range c.tasks {
		if err := rule(t); err != nil {
			return fmt.Errorf("configuring %s: %w", t.Path(), err)
		}
	}
	return nil
}

// Get returns a task by name.
func (c *Container) Get(name string) (*Task, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Tasks returns tasks in registration order.
func (c *Container) Tasks() []*Task {
	return slices.Clone(c.tasks)
}

// ExecutionOrder returns tasks with dependencies first.
func (c *Container) ExecutionOrder() ([]*Task, error) {
	g := dag.NewGraph[*Task]()
	for _, t := range c.tasks {
		g.AddNode(t.Name, t)
	}
	for _, t := range c.tasks {
		for _, dep := range t.dependsOn {
			if err := g.AddEdge(dep, t.Name); err != nil {
				return nil, fmt.Errorf("%s depends on %q: %w", t.Path(), dep, err)
			}
		}
	}

	nodes, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("ordering tasks of %s: %w", c.project, err)
	}
	order := make([]*Task, 0, len(nodes))
	for _, n := range nodes {
		order = append(order, n.Data)
	}
	return order, nil
}
