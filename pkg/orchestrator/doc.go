// Package orchestrator turns an install request into scheduled tasks and
// runs them.
//
// [Plan] expands the requested components with the install graph: every
// module brings its missing sync ancestors, and the editor is always
// installed first when it is missing. [Orchestrator.Run] executes the plan
// on a bounded worker pool. Downloads start right away, but a module's
// install step waits until the module it hangs below has finished; if that
// module failed, the dependent fails with DEPENDENCY_FAILED without being
// extracted.
//
// All tasks run to a terminal state before Run returns. Failures are
// collected into a [*RunError], and the installation's modules.json record
// is rewritten once with the modules that completed.
package orchestrator
