package db

type migration struct {
	name  string
	stmts []string
}

// messageColumns is the projection every Messages_Select* procedure returns.
// The accessor maps these by name, so order here is free to change.
const messageColumns = `
	m.Id, m.Message, m.Subject,
	r.Id AS RecipientId, r.FirstName AS RecipientFirstName, r.LastName AS RecipientLastName,
	r.Mi AS RecipientMi, r.AvatarUrl AS RecipientAvatarUrl,
	s.Id AS SenderId, s.FirstName AS SenderFirstName, s.LastName AS SenderLastName,
	s.Mi AS SenderMi, s.AvatarUrl AS SenderAvatarUrl,
	m.DateSent, m.DateRead, m.DateCreated, m.DateModified`

const messageJoins = `
	FROM Messages m
	INNER JOIN Users r ON r.Id = m.RecipientId
	INNER JOIN Users s ON s.Id = m.SenderId`

var migrations = []migration{
	{
		name: "create users table",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS Users (
				Id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				Email VARCHAR(255) NOT NULL,
				FirstName VARCHAR(100) NOT NULL,
				LastName VARCHAR(100) NOT NULL,
				Mi VARCHAR(2) NULL,
				AvatarUrl VARCHAR(255) NULL,
				DateCreated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uk_users_email (Email)
			) CHARACTER SET utf8mb4`,
		},
	},
	{
		name: "create messages table",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS Messages (
				Id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				Message VARCHAR(50) NOT NULL,
				Subject VARCHAR(100) NULL,
				RecipientId INT NOT NULL,
				SenderId INT NOT NULL,
				DateSent DATETIME NULL,
				DateRead DATETIME NULL,
				DateCreated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				DateModified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				KEY idx_messages_recipient (RecipientId),
				KEY idx_messages_sender (SenderId),
				CONSTRAINT fk_messages_recipient FOREIGN KEY (RecipientId) REFERENCES Users (Id),
				CONSTRAINT fk_messages_sender FOREIGN KEY (SenderId) REFERENCES Users (Id)
			) CHARACTER SET utf8mb4`,
		},
	},
	{
		name: "create Messages_Select_ById_V2",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_Select_ById_V2`,
			`CREATE PROCEDURE Messages_Select_ById_V2(IN p_Id INT)
			BEGIN
				SELECT ` + messageColumns + messageJoins + `
				WHERE m.Id = p_Id;
			END`,
		},
	},
	{
		name: "create Messages_SelectAll_V2",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_SelectAll_V2`,
			`CREATE PROCEDURE Messages_SelectAll_V2(IN p_pageIndex INT, IN p_pageSize INT)
			BEGIN
				DECLARE v_offset INT DEFAULT p_pageIndex * p_pageSize;
				SELECT ` + messageColumns + `, COUNT(*) OVER() AS TotalCount` + messageJoins + `
				ORDER BY m.Id DESC
				LIMIT v_offset, p_pageSize;
			END`,
		},
	},
	{
		name: "create Messages_Select_ByCreatedBy_V2",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_Select_ByCreatedBy_V2`,
			`CREATE PROCEDURE Messages_Select_ByCreatedBy_V2(IN p_SenderId INT, IN p_pageIndex INT, IN p_pageSize INT)
			BEGIN
				DECLARE v_offset INT DEFAULT p_pageIndex * p_pageSize;
				SELECT ` + messageColumns + `, COUNT(*) OVER() AS TotalCount` + messageJoins + `
				WHERE m.SenderId = p_SenderId
				ORDER BY m.Id DESC
				LIMIT v_offset, p_pageSize;
			END`,
		},
	},
	{
		name: "create Messages_Select_ByRecipientId_V2",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_Select_ByRecipientId_V2`,
			`CREATE PROCEDURE Messages_Select_ByRecipientId_V2(IN p_RecipientId INT, IN p_pageIndex INT, IN p_pageSize INT)
			BEGIN
				DECLARE v_offset INT DEFAULT p_pageIndex * p_pageSize;
				SELECT ` + messageColumns + `, COUNT(*) OVER() AS TotalCount` + messageJoins + `
				WHERE m.RecipientId = p_RecipientId
				ORDER BY m.Id DESC
				LIMIT v_offset, p_pageSize;
			END`,
		},
	},
	{
		name: "create Messages_Insert",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_Insert`,
			`CREATE PROCEDURE Messages_Insert(
				IN p_Message VARCHAR(50),
				IN p_Subject VARCHAR(100),
				IN p_RecipientId INT,
				IN p_SenderId INT,
				IN p_DateSent DATETIME,
				IN p_DateRead DATETIME,
				OUT p_Id INT)
			BEGIN
				INSERT INTO Messages (Message, Subject, RecipientId, SenderId, DateSent, DateRead, DateCreated, DateModified)
				VALUES (p_Message, p_Subject, p_RecipientId, p_SenderId, p_DateSent, p_DateRead, UTC_TIMESTAMP(), UTC_TIMESTAMP());
				SET p_Id = LAST_INSERT_ID();
			END`,
		},
	},
	{
		name: "create Messages_Update",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_Update`,
			`CREATE PROCEDURE Messages_Update(
				IN p_Id INT,
				IN p_Message VARCHAR(50),
				IN p_Subject VARCHAR(100),
				IN p_RecipientId INT,
				IN p_SenderId INT,
				IN p_DateSent DATETIME,
				IN p_DateRead DATETIME)
			BEGIN
				UPDATE Messages
				SET Message = p_Message,
					Subject = p_Subject,
					RecipientId = p_RecipientId,
					SenderId = p_SenderId,
					DateSent = p_DateSent,
					DateRead = p_DateRead,
					DateModified = UTC_TIMESTAMP()
				WHERE Id = p_Id;
			END`,
		},
	},
	{
		name: "create Messages_Delete_ById",
		stmts: []string{
			`DROP PROCEDURE IF EXISTS Messages_Delete_ById`,
			`CREATE PROCEDURE Messages_Delete_ById(IN p_Id INT)
			BEGIN
				DELETE FROM Messages WHERE Id = p_Id;
			END`,
		},
	},
}
