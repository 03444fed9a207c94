package graphql

// Schema is the GraphQL SDL served at /graphql. Timestamps travel as
// RFC 3339 strings in UTC.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

type Query {
	# Mutual friends of the caller. One-sided edges are not returned.
	myFriends: [User!]!
	mySchedules: [Schedule!]!
	# Plans in any of the caller's schedules.
	myPlans: [Plan!]!
	# Null when the schedule does not exist.
	getSchedule(id: ID!): Schedule
	# Plans of one of the caller's schedules.
	getPlans(id: ID!): [Plan!]!
	# Plans owned by or inviting any listed user. Each ID must be the caller
	# or a mutual friend; "" stands for the caller.
	getPlansByUserIds(users: [ID!]!): [Plan!]!
	# Every user except the caller, ordered by name.
	getUsers(search: String): [User!]!
}

type Mutation {
	signUp(input: SignUpInput!): AuthUser!
	signIn(input: SignInInput!): AuthUser!
	addFriend(friendId: ID!): User!
	deleteFriend(friendId: ID!): User!
	createSchedule(title: String!, color: String, isActive: Boolean): Schedule!
	updateSchedule(id: ID!, title: String, color: String): Schedule!
	deleteSchedule(id: ID!): Boolean!
	setActive(id: ID!, isActive: Boolean!): Schedule!
	createPlan(title: String!, description: String, start: String!, end: String!, scheduleId: ID!, users: [ID!]): Plan!
	updatePlan(id: ID!, title: String, description: String, start: String, end: String, users: [ID!]): Plan!
	deletePlan(id: ID!): Boolean!
}

input SignUpInput {
	email: String!
	password: String!
	name: String!
	avatar: String
}

input SignInInput {
	email: String!
	password: String!
}

type User {
	id: ID!
	name: String!
	email: String!
	avatar: String
	friends: [ID!]!
}

type AuthUser {
	user: User!
	token: String!
}

type Schedule {
	id: ID!
	userId: ID!
	title: String!
	color: String
	isActive: Boolean!
	lastUpdated: String!
	# Empty unless the caller owns the schedule.
	plans: [Plan!]!
}

type Plan {
	id: ID!
	title: String!
	description: String
	start: String!
	end: String!
	scheduleId: ID!
	userIds: [ID!]!
	schedule: Schedule!
}
`
