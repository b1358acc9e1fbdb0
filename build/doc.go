/*Package build synthesizes legacy force-field files from abstract term
specifications.

The pieces: a capability-based parameter Source interface with a Chain
composite (first non-declining source wins, per capability), a Placeholder
source fabricating generic bond/angle constants from element identity, a
ParamSetSource answering atom-info and LJ queries from a validated
ParameterSet, the Builder assembling a complete file from a TermSet and a
source chain (with truncated-alias expansion for labels over the downstream
length limit), and a topology extractor deriving bonded-term keys from
molecular connectivity.*/
package build
