// Copyright 2026 The Gocluster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cluster

// Property names published to the host environment.  Internal names all
// start with an underscore.  Consumers must know the name and the type of
// the value; there is no provision for discovery.
type PropertyName string

const (
	PropMode     PropertyName = "_ClusterMode"     // ProcessMode
	PropWorkerID              = "_ClusterWorkerID" // int, 0 in the master
	PropCluster               = "_Cluster"         // *Cluster handle
	PropTitle                 = "_ClusterTitle"    // decorated process title
)
