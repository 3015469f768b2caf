// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package answer assembles structured answers from ranked search results.
//
// Questions are classified into five types (yes/no, comparison, procedural,
// interpretation, factual) and answered either extractively, with a
// strategy per type, or through a generation model when one is configured.
// Every answer carries citations, source pages, and a confidence
// assessment. Assemble never fails: missing evidence and synthesis errors
// both produce well-formed answers with suppressed confidence.
package answer
