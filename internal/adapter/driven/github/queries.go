package github

// searchPullRequestsQuery pages through the search API with the full PR field
// selection both sync query shapes share. Review and label selections are
// capped; totalCount carries the true review count when it exceeds the page.
// fetchPRChecksQuery pulls the check suites and runs on a PR's head commit.
// Suite and run selections are capped the way the dashboard displays them.
const fetchPRChecksQuery = `query($owner: String!, $name: String!, $number: Int!) {
	repository(owner: $owner, name: $name) {
		pullRequest(number: $number) {
			commits(last: 1) {
				nodes {
					commit {
						statusCheckRollup {
							state
						}
						checkSuites(first: 20) {
							nodes {
								app {
									name
									logoUrl
								}
								status
								conclusion
								checkRuns(first: 50) {
									nodes {
										name
										status
										conclusion
										detailsUrl
										startedAt
										completedAt
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`

const searchPullRequestsQuery = `query($q: String!, $cursor: String) {
	search(query: $q, type: ISSUE, first: 100, after: $cursor) {
		pageInfo {
			hasNextPage
			endCursor
		}
		nodes {
			... on PullRequest {
				id
				number
				title
				body
				url
				state
				isDraft
				reviewDecision
				author {
					login
					avatarUrl
				}
				labels(first: 20) {
					nodes {
						name
						color
					}
				}
				reviewRequests(first: 20) {
					nodes {
						requestedReviewer {
							... on User {
								login
								avatarUrl
							}
							... on Team {
								slug
							}
						}
					}
				}
				reviews(first: 50) {
					totalCount
					nodes {
						id
						state
						body
						submittedAt
						author {
							login
							avatarUrl
						}
						comments {
							totalCount
						}
					}
				}
				comments {
					totalCount
				}
				changedFiles
				additions
				deletions
				headRefName
				baseRefName
				commits(last: 1) {
					nodes {
						commit {
							statusCheckRollup {
								state
							}
						}
					}
				}
				createdAt
				updatedAt
				mergedAt
				closedAt
			}
		}
	}
}`
