package git

// Per-command stderr tables. Order matters: earlier rules win. Literals are
// the English messages git prints under LC_ALL=C.

var commonRules = errorTable{
	{matchContains, ".lock': File exists", ErrLockContention},
	{matchContains, "not a git repository", ErrNotRepository},
	{matchContains, "Authentication failed", ErrAuthenticationFailed},
	{matchContains, "Permission denied (publickey", ErrAuthenticationFailed},
	{matchContains, "could not read Username", ErrAuthenticationFailed},
	{matchContains, "Permission denied", ErrPermissionDenied},
	{matchPrefix, "fatal: Could not read from remote repository", ErrRemoteUnavailable},
	{matchPrefix, "fatal: unable to access", ErrRemoteUnavailable},
	{matchContains, "Please tell me who you are", ErrIdentityUnknown},
	{matchContains, "unable to auto-detect email address", ErrIdentityUnknown},
}

var revParseRules = errorTable{
	{matchContains, "unknown revision or path not in the working tree", ErrReferenceNotFound},
	{matchPrefix, "fatal: Needed a single revision", ErrReferenceNotFound},
	{matchPrefix, "fatal: bad revision", ErrReferenceNotFound},
}

var branchRules = errorTable{
	{matchSuffix, "already exists", ErrBranchExists},
	{matchSuffix, "is not a valid branch name", ErrInvalidName},
	{matchPrefix, "fatal: not a valid object name", ErrReferenceNotFound},
	{matchPrefix, "fatal: invalid reference", ErrReferenceNotFound},
	{matchContains, "requested upstream branch", ErrReferenceNotFound},
	{matchContains, "is not fully merged", ErrBranchNotMerged},
	{matchContains, "used by worktree at", ErrBranchCheckedOut},
	{matchContains, "checked out at", ErrBranchCheckedOut},
	{matchPrefix, "error: branch '", ErrBranchNotFound},
	{matchContains, "No branch named", ErrBranchNotFound},
}

var tagRules = errorTable{
	{matchSuffix, "already exists", ErrTagExists},
	{matchSuffix, "is not a valid tag name.", ErrInvalidName},
	{matchPrefix, "fatal: Failed to resolve", ErrReferenceNotFound},
	{matchSuffix, "not found.", ErrTagNotFound},
}

var logRules = errorTable{
	{matchContains, "does not have any commits yet", ErrReferenceNotFound},
	{matchContains, "unknown revision or path not in the working tree", ErrReferenceNotFound},
	{matchPrefix, "fatal: bad revision", ErrReferenceNotFound},
	{matchPrefix, "fatal: bad object", ErrReferenceNotFound},
}

var commitRules = errorTable{
	{matchPrefix, "nothing to commit", ErrNothingToCommit},
	{matchPrefix, "nothing added to commit", ErrNothingToCommit},
	{matchPrefix, "no changes added to commit", ErrNothingToCommit},
	{matchContains, "Committing is not possible because you have unmerged files", ErrUnmergedFiles},
	{matchContains, "You have nothing to amend", ErrReferenceNotFound},
}

var diffRules = errorTable{
	{matchContains, "unknown revision or path not in the working tree", ErrReferenceNotFound},
	{matchPrefix, "fatal: bad revision", ErrReferenceNotFound},
	{matchPrefix, "fatal: bad object", ErrReferenceNotFound},
}

var remoteRules = errorTable{
	{matchSuffix, "already exists.", ErrRemoteExists},
	{matchPrefix, "error: No such remote", ErrRemoteNotFound},
	{matchContains, "is not a valid remote name", ErrInvalidName},
}

var transferRules = errorTable{
	{matchContains, "does not appear to be a git repository", ErrRepositoryNotFound},
	{matchContains, "not found in upstream", ErrReferenceNotFound},
	{matchContains, "Could not find remote branch", ErrReferenceNotFound},
	{matchPrefix, "fatal: repository '", ErrRepositoryNotFound},
	{matchContains, "Repository not found", ErrRepositoryNotFound},
	{matchPrefix, "fatal: destination path", ErrDestinationExists},
	{matchContains, "couldn't find remote ref", ErrReferenceNotFound},
	{matchContains, "src refspec", ErrReferenceNotFound},
	{matchContains, "non-fast-forward", ErrNotFastForward},
	{matchContains, "Not possible to fast-forward", ErrNotFastForward},
	{matchContains, "[rejected]", ErrPushRejected},
	{matchContains, "[remote rejected]", ErrPushRejected},
	{matchContains, "Could not resolve host", ErrRemoteUnavailable},
	{matchContains, "Connection refused", ErrRemoteUnavailable},
	{matchContains, "would be overwritten by merge", ErrUncommittedChanges},
	{matchContains, "You have unstaged changes", ErrUncommittedChanges},
	{matchContains, "refusing to merge unrelated histories", ErrUnrelatedHistories},
	{matchContains, "You have not concluded your merge", ErrMergeInProgress},
}

var checkoutRules = errorTable{
	{matchContains, "would be overwritten by checkout", ErrUncommittedChanges},
	{matchContains, "Please commit your changes or stash them", ErrUncommittedChanges},
	{matchContains, "you need to resolve your current index first", ErrUnmergedFiles},
	{matchContains, "did not match any file(s) known to git", ErrPathNotFound},
	{matchContains, "did not match any files", ErrPathNotFound},
	{matchPrefix, "fatal: invalid reference", ErrReferenceNotFound},
	{matchSuffix, "already exists", ErrBranchExists},
	{matchContains, "is already checked out at", ErrBranchCheckedOut},
	{matchContains, "is already used by worktree at", ErrBranchCheckedOut},
}

var mergeRules = errorTable{
	{matchContains, "You have not concluded your merge", ErrMergeInProgress},
	{matchContains, "There is no merge to abort", ErrNoMergeInProgress},
	{matchContains, "would be overwritten by merge", ErrUncommittedChanges},
	{matchContains, "Please commit your changes or stash them", ErrUncommittedChanges},
	{matchContains, "not something we can merge", ErrReferenceNotFound},
	{matchContains, "Not possible to fast-forward", ErrNotFastForward},
	{matchContains, "refusing to merge unrelated histories", ErrUnrelatedHistories},
	{matchContains, "you need to resolve your current index first", ErrUnmergedFiles},
}

var rebaseRules = errorTable{
	{matchContains, "already a rebase-merge directory", ErrRebaseInProgress},
	{matchContains, "already a rebase-apply directory", ErrRebaseInProgress},
	{matchContains, "No rebase in progress", ErrNoRebaseInProgress},
	{matchContains, "You have unstaged changes", ErrUncommittedChanges},
	{matchContains, "Your index contains uncommitted changes", ErrUncommittedChanges},
	{matchContains, "would be overwritten by checkout", ErrUncommittedChanges},
	{matchPrefix, "fatal: invalid upstream", ErrReferenceNotFound},
	{matchPrefix, "fatal: no such branch", ErrReferenceNotFound},
	{matchContains, "You must edit all merge conflicts", ErrUnmergedFiles},
}

var stashRules = errorTable{
	{matchContains, "is not a valid reference", ErrStashNotFound},
	{matchContains, "No stash entries found", ErrStashNotFound},
	{matchContains, "only has", ErrStashNotFound},
	{matchContains, "would be overwritten by merge", ErrUncommittedChanges},
	{matchContains, "Cannot save the current index state", ErrUnmergedFiles},
	{matchContains, "needs merge", ErrUnmergedFiles},
}

var cleanRules = errorTable{
	{matchContains, "clean.requireForce", ErrInvalidArgument},
}

var configRules = errorTable{
	{matchPrefix, "error: invalid key", ErrInvalidName},
	{matchPrefix, "error: key does not contain a section", ErrInvalidName},
	{matchContains, "could not lock config file", ErrLockContention},
}

var worktreeRules = errorTable{
	{matchContains, "already exists", ErrWorktreeExists},
	{matchContains, "is already checked out at", ErrBranchCheckedOut},
	{matchContains, "is already used by worktree at", ErrBranchCheckedOut},
	{matchContains, "is not a working tree", ErrWorktreeNotFound},
	{matchContains, "is not a valid path", ErrWorktreeNotFound},
	{matchContains, "is locked", ErrWorktreeLocked},
	{matchContains, "already locked", ErrWorktreeLocked},
	{matchContains, "locked working tree", ErrWorktreeLocked},
	{matchContains, "contains modified or untracked files", ErrUncommittedChanges},
	{matchContains, "invalid reference", ErrReferenceNotFound},
}

var objectRules = errorTable{
	{matchPrefix, "fatal: Not a valid object name", ErrReferenceNotFound},
	{matchContains, "bad file", ErrReferenceNotFound},
}
