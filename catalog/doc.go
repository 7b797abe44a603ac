// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package catalog is the read-only view of a survey's question list.

Surveys and questions are authored by the frontend; every simulation
component consumes them through this adapter:

	questions, err := catalog.Questions(db, surveyID)

Questions come back ordered by their 1-based number, which is unique and
contiguous within a survey. The package also defines ErrNotFound, the
shared sentinel for missing surveys, runs, and result sets.
*/
package catalog
