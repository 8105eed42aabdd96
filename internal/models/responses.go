package models

import "time"

// HealthResponse is returned by the liveness endpoint
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`
	Service   string    `json:"service" example:"afro-ceo-agent"`
	Timestamp time.Time `json:"timestamp"`
}

// EndpointStatus reports the reachability of one network's endpoints
type EndpointStatus struct {
	RPC      bool `json:"rpc"`
	Explorer bool `json:"explorer"`
}

// Healthy reports whether both endpoints answered
func (s EndpointStatus) Healthy() bool {
	return s.RPC && s.Explorer
}

// NetworkStatus is the reachability of mainnet and testnet
type NetworkStatus struct {
	Mainnet   EndpointStatus `json:"mainnet"`
	Testnet   EndpointStatus `json:"testnet"`
	Timestamp time.Time      `json:"timestamp"`
}

// AsMap converts the status for storage in a JSON column
func (s NetworkStatus) AsMap() JSONMap {
	return JSONMap{
		"mainnet":   map[string]interface{}{"rpc": s.Mainnet.RPC, "explorer": s.Mainnet.Explorer},
		"testnet":   map[string]interface{}{"rpc": s.Testnet.RPC, "explorer": s.Testnet.Explorer},
		"timestamp": s.Timestamp.UTC().Format(time.RFC3339),
	}
}

// IssueRef identifies a created GitHub issue
type IssueRef struct {
	Number int    `json:"number" example:"42"`
	URL    string `json:"url" example:"https://github.com/afro-network/afro-chain/issues/42"`
	Title  string `json:"title,omitempty"`
}

// ChatResponse is the CEO agent answer
type ChatResponse struct {
	Response      string        `json:"response"`
	NetworkStatus NetworkStatus `json:"networkStatus"`
	Timestamp     time.Time     `json:"timestamp"`
	Issue         *IssueRef     `json:"issue,omitempty"`
}

// PublishResponse is returned after publishing an agentic proposal
type PublishResponse struct {
	AgenticProposal *AgenticProposal `json:"agentic_proposal"`
	Proposal        *Proposal        `json:"proposal"`
	Issue           *IssueRef        `json:"issue,omitempty"`
}

// ServiceLogsResponse carries the recent log lines of one service
type ServiceLogsResponse struct {
	Service   string   `json:"service"`
	Container string   `json:"container"`
	Tail      int      `json:"tail"`
	Success   bool     `json:"success"`
	Logs      []string `json:"logs"`
	Error     string   `json:"error,omitempty"`
}

// DockerSystemResponse reports the Docker daemon reachability
type DockerSystemResponse struct {
	Reachable     bool   `json:"reachable"`
	APIVersion    string `json:"api_version,omitempty"`
	ServerVersion string `json:"server_version,omitempty"`
	OS            string `json:"os,omitempty"`
	Containers    int    `json:"containers"`
	Running       int    `json:"running"`
	Error         string `json:"error,omitempty"`
}

// ComposeServiceResponse describes one service of the compose file
type ComposeServiceResponse struct {
	Name          string   `json:"name"`
	ContainerName string   `json:"container_name,omitempty"`
	Image         string   `json:"image,omitempty"`
	Build         bool     `json:"build"`
	DependsOn     []string `json:"depends_on,omitempty"`
	Ports         []string `json:"ports,omitempty"`
	Known         bool     `json:"known"`
	Modes         []string `json:"modes,omitempty"`
}

// ComposeServicesResponse is the parsed compose project
type ComposeServicesResponse struct {
	Project  string                   `json:"project"`
	File     string                   `json:"file"`
	Services []ComposeServiceResponse `json:"services"`
	Missing  []string                 `json:"missing,omitempty"`
}

// DockerExecuteResponse reports a raw allow-listed command
type DockerExecuteResponse struct {
	Success    bool     `json:"success"`
	Stage      string   `json:"stage" example:"completed"`
	Message    string   `json:"message"`
	Command    string   `json:"command"`
	Logs       []string `json:"logs"`
	Output     string   `json:"output"`
	Error      string   `json:"error,omitempty"`
	ExitCode   *int     `json:"exitCode"`
	Truncated  bool     `json:"truncated"`
	DurationMs int64    `json:"durationMs"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ModesResponse lists the operation modes
type ModesResponse struct {
	Modes    []ModeResponse `json:"modes"`
	Services []string       `json:"services"`
}

// ModeResponse is one operation mode
type ModeResponse struct {
	ID          string   `json:"id" example:"testnet"`
	Name        string   `json:"name" example:"Testnet Only"`
	Description string   `json:"description"`
	Services    []string `json:"services"`
}

// OperationListResponse is a page of operation history
type OperationListResponse struct {
	Operations []Operation `json:"operations"`
	Count      int         `json:"count"`
}
