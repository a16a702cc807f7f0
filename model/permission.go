// file: model/permission.go

package model

// Permission is a fine-grained capability required to run a protected
// operation.
type Permission string

const (
	PermissionMangaCreate Permission = "manga:create"
	PermissionMangaUpdate Permission = "manga:update"
	PermissionMangaDelete Permission = "manga:delete"

	PermissionChapterCreate Permission = "chapter:create"
	PermissionChapterUpdate Permission = "chapter:update"
	PermissionChapterDelete Permission = "chapter:delete"

	PermissionCommentCreate   Permission = "comment:create"
	PermissionCommentUpdate   Permission = "comment:update"
	PermissionCommentDelete   Permission = "comment:delete"
	PermissionCommentModerate Permission = "comment:moderate"

	PermissionUserViewAll     Permission = "user:view-all"
	PermissionUserUpdate      Permission = "user:update"
	PermissionUserDelete      Permission = "user:delete"
	PermissionUserManageRoles Permission = "user:manage-roles"

	PermissionAttachmentUpload Permission = "attachment:upload"
	PermissionAttachmentDelete Permission = "attachment:delete"

	PermissionGenreCreate Permission = "genre:create"
	PermissionGenreUpdate Permission = "genre:update"
	PermissionGenreDelete Permission = "genre:delete"

	PermissionAdminViewStats      Permission = "admin:view-stats"
	PermissionAdminManageUsers    Permission = "admin:manage-users"
	PermissionAdminManageComments Permission = "admin:manage-comments"
)

// AllPermissions enumerates every permission the system knows about. The
// admin role is derived from this list so that newly added permissions are
// picked up without touching the role table.
var AllPermissions = []Permission{
	PermissionMangaCreate,
	PermissionMangaUpdate,
	PermissionMangaDelete,
	PermissionChapterCreate,
	PermissionChapterUpdate,
	PermissionChapterDelete,
	PermissionCommentCreate,
	PermissionCommentUpdate,
	PermissionCommentDelete,
	PermissionCommentModerate,
	PermissionUserViewAll,
	PermissionUserUpdate,
	PermissionUserDelete,
	PermissionUserManageRoles,
	PermissionAttachmentUpload,
	PermissionAttachmentDelete,
	PermissionGenreCreate,
	PermissionGenreUpdate,
	PermissionGenreDelete,
	PermissionAdminViewStats,
	PermissionAdminManageUsers,
	PermissionAdminManageComments,
}

// rolePermissions is the static role -> permission table. A database-driven
// table is planned but not needed yet.
var rolePermissions = map[Role][]Permission{
	RoleReader: {
		PermissionCommentCreate,
		PermissionCommentUpdate,
		PermissionAttachmentUpload,
	},
	RoleUploader: {
		PermissionCommentCreate,
		PermissionCommentUpdate,
		PermissionAttachmentUpload,
		PermissionMangaCreate,
		PermissionMangaUpdate,
		PermissionChapterCreate,
		PermissionChapterUpdate,
		PermissionAttachmentDelete,
		PermissionAdminViewStats,
	},
	RoleModerator: {
		PermissionCommentCreate,
		PermissionCommentUpdate,
		PermissionCommentDelete,
		PermissionCommentModerate,
		PermissionMangaCreate,
		PermissionMangaUpdate,
		PermissionMangaDelete,
		PermissionChapterCreate,
		PermissionChapterUpdate,
		PermissionChapterDelete,
		PermissionAttachmentUpload,
		PermissionAttachmentDelete,
		PermissionAdminViewStats,
		PermissionAdminManageComments,
	},
	RoleAdmin: AllPermissions,
}

// PermissionsForRole returns the permissions granted by a single role.
// Unknown roles grant nothing.
func PermissionsForRole(role Role) []Permission {
	return rolePermissions[role]
}

// ResolvePermissions returns the deduplicated union of the permissions
// granted by the given roles.
func ResolvePermissions(roles []Role) []Permission {
	seen := make(map[Permission]struct{})
	var result []Permission
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			result = append(result, p)
		}
	}
	return result
}
