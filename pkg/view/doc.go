// Package view turns a pipeline state into HTML.
//
// [Render] writes the fragment that replaces the response area after every
// submit: a results list followed by the rule diagram, or a single error
// paragraph. [Page] wraps the same fragment in the full page with the rule
// form. Both are pure functions of their input state.
package view
