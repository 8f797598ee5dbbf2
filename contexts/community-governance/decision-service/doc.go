// Package decisionservice implements community decisions inside the
// community-governance context.
//
// The module owns the decision lifecycle (create/update/cancel/close), ballot
// collection, tally and quorum evaluation, and winner resolution. Decision
// events leave the module through an outbox drained by workers. Business rules
// live in application/domain layers; storage and delivery stay behind ports.
package decisionservice
