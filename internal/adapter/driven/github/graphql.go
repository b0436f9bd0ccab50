package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// graphqlHTTPClient is the HTTP client used for GraphQL requests.
// It enforces a 30-second timeout as a safety net alongside context cancellation.
var graphqlHTTPClient = &http.Client{Timeout: 30 * time.Second}

// reviewThreadsQuery pages through a PR's review threads, pairing each
// thread's resolution status with its root comment's database ID. REST
// review comments carry no resolution data, so this is the only source.
const reviewThreadsQuery = `query($owner: String!, $repo: String!, $pr: Int!, $cursor: String) {
	repository(owner: $owner, name: $repo) {
		pullRequest(number: $pr) {
			reviewThreads(first: 100, after: $cursor) {
				pageInfo {
					hasNextPage
					endCursor
				}
				nodes {
					isResolved
					comments(first: 1) {
						nodes {
							databaseId
						}
					}
				}
			}
		}
	}
}`

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// reviewThreadsResponse is the shape of one page of the review threads query.
type reviewThreadsResponse struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				ReviewThreads struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []struct {
						IsResolved bool `json:"isResolved"`
						Comments   struct {
							Nodes []struct {
								DatabaseID int64 `json:"databaseId"`
							} `json:"nodes"`
						} `json:"comments"`
					} `json:"nodes"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchThreadResolution queries the GitHub GraphQL API for review thread
// resolution status, following cursors until all threads are seen. It returns
// a map of root comment database ID to resolved status.
//
// This is a supplementary data source. All error paths return an empty map and
// log a warning; failures never propagate to callers.
func (c *Client) FetchThreadResolution(ctx context.Context, repoFullName string, prNumber int) (map[int64]bool, error) {
	resolution := map[int64]bool{}

	if c.token == "" {
		return resolution, nil
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return resolution, nil
	}

	var cursor *string
	for {
		var page reviewThreadsResponse
		variables := map[string]any{
			"owner":  owner,
			"repo":   repo,
			"pr":     prNumber,
			"cursor": cursor,
		}

		if err := c.doGraphQL(ctx, reviewThreadsQuery, variables, &page); err != nil {
			slog.Warn("graphql: review threads query failed",
				"error", err,
				"repo", repoFullName,
				"pr", prNumber,
			)
			return map[int64]bool{}, nil
		}

		if len(page.Errors) > 0 {
			slog.Warn("graphql: response contains errors",
				"errors", page.Errors[0].Message,
				"repo", repoFullName,
				"pr", prNumber,
			)
			return map[int64]bool{}, nil
		}

		threads := page.Data.Repository.PullRequest.ReviewThreads
		for _, node := range threads.Nodes {
			if len(node.Comments.Nodes) == 0 {
				continue
			}
			resolution[node.Comments.Nodes[0].DatabaseID] = node.IsResolved
		}

		if !threads.PageInfo.HasNextPage {
			break
		}
		next := threads.PageInfo.EndCursor
		cursor = &next
	}

	return resolution, nil
}

// doGraphQL posts one query to the GraphQL endpoint and decodes the response
// into out.
func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.token))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := graphqlHTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("posting query: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
